//go:build !cgo

package pkg

func C() {}
