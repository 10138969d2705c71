package rm_test

import (
	"fmt"

	"github.com/cwbudde/algo-dynspec/rm"
)

func ExampleTrialAxis() {
	phi, _ := rm.TrialAxis(-1, 1, 0.5)
	fmt.Println(phi)
	// Output:
	// [-1 -0.5 0 0.5 1]
}

func ExampleWavelength() {
	fmt.Printf("%.3f m\n", rm.Wavelength(299.792458))
	// Output:
	// 1.000 m
}
