//go:build vbox_v7_0 && !vbox_v7_1

package raw_test

// The 7.0 tag wins over the 6.1 one.
const expCurrentLine = "v7_0"
