package db

import "errors"

var ErrJournalDisabled = errors.New("lookup journal is disabled")
