// TinyTask - desktop macro recorder and player
package main

import "tinytask/cmd"

func main() {
	cmd.Execute()
}
