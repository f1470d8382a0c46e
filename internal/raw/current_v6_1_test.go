//go:build vbox_v6_1 && !vbox_v7_0 && !vbox_v7_1

package raw_test

const expCurrentLine = "v6_1"
