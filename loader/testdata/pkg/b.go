//go:build extra

package pkg

func B() {}
