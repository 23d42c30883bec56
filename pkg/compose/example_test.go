package compose_test

import (
	"fmt"

	"github.com/templar-cli/templar/pkg/compose"
)

func ExampleSlotSystem() {
	slots := compose.NewSlotSystem()
	slots.Register("# Project\n{{< slot \"sections\" >}}\n## Build\nmake\n")
	slots.Register("{{< slot \"sections\" >}}\n## Deploy\nmake deploy\n")

	fmt.Print(slots.Render())
	// Output:
	// # Project
	//
	// ## Build
	// make
	//
	// ## Deploy
	// make deploy
}
