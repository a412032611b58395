package mirror

import "errors"

// ErrLocalIO wraps failures writing to or reading from the local mirror
// filesystem (sidecars, content, archive copies).
var ErrLocalIO = errors.New("mirror: local filesystem error")

// ErrRecursionLimit names a tree walk exceeding MaxRecursionDepth. TreeWalker
// does not return it: it logs the overflow and abandons only that subtree.
var ErrRecursionLimit = errors.New("mirror: recursion limit exceeded")
