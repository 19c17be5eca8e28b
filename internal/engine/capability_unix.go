//go:build unix

package engine

import "golang.org/x/sys/unix"

func deviceAccess(path string) error {
	return unix.Access(path, unix.R_OK|unix.W_OK)
}
