package ledger

import "errors"

// ErrStorageFault wraps every failure to read, decode, encode or write the
// ledger document.
var ErrStorageFault = errors.New("ledger storage fault")
