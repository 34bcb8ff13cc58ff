// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import "fmt"

// ErrINVAL reports an invalid argument passed to a Filer method, e.g. a
// negative seek offset, an unknown whence, or a Truncate with the cursor
// past the end of the file.
type ErrINVAL struct {
	Name string
	Arg  interface{}
}

func (e *ErrINVAL) Error() string {
	return fmt.Sprintf("%s: invalid argument %v", e.Name, e.Arg)
}

// ErrPERM reports an operation attempted on a Filer in a state that
// forbids it. Neither Filer in this package returns it; a read past the
// end of the file is reported as io.ErrUnexpectedEOF.
type ErrPERM struct {
	Name string
}

func (e *ErrPERM) Error() string {
	return fmt.Sprintf("%s: operation not permitted", e.Name)
}
