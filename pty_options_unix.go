//go:build !windows
// +build !windows

package ptyproc

import "github.com/aymanbagabas/ptyproc/internal/termopts"

func optionsFromFD(raw int) (Options, error) {
	return termopts.FromFD(raw)
}

func applyOptionsToFD(raw int, opts Options) error {
	return termopts.ApplyTo(raw, opts, true, false)
}
