//go:build vbox_v7_1

package raw_test

// The 7.1 tag wins over any other line tag.
const expCurrentLine = "v7_1"
