//go:build !vbox_v7_1 && !vbox_v7_0 && !vbox_v6_1

package raw_test

// Without line tags the newest line is compiled.
const expCurrentLine = "v7_1"
