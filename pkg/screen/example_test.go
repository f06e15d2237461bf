package screen_test

import (
	"fmt"

	"github.com/screenloom/screenloom/pkg/screen"
)

func ExampleDeriveID() {
	fmt.Println(screen.DeriveID("Home"))
	fmt.Println(screen.DeriveID("User Settings"))
	fmt.Println(screen.DeriveID("  Login!! "))
	// Output:
	// screen-home
	// screen-user-settings
	// screen-login
}

func ExampleNormalizeTarget() {
	// Markup may reference a screen by id, fragment, or plain name; all
	// three resolve to the same id.
	fmt.Println(screen.NormalizeTarget("screen-settings"))
	fmt.Println(screen.NormalizeTarget("#screen-settings"))
	fmt.Println(screen.NormalizeTarget("Settings"))
	// Output:
	// screen-settings
	// screen-settings
	// screen-settings
}
