package main

import (
	"github.com/arvados/ldmask"
)

func main() {
	ldmask.Main()
}
