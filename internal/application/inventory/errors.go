package inventory

import "errors"

var (
	ErrMissingImportFile  = errors.New("import file is required")
	ErrInvalidOptions     = errors.New("import request rejected")
	ErrStoreImportFile    = errors.New("failed to store import file")
	ErrEnqueueImportJob   = errors.New("failed to enqueue import job")
	ErrInvalidJobID       = errors.New("invalid import job id")
	ErrImportJobNotFound  = errors.New("import job not found")
	ErrGetImportStatus    = errors.New("failed to get import status")
	ErrInvalidArticleNo   = errors.New("invalid internal article number")
	ErrInventoryNotFound  = errors.New("inventory item not found")
	ErrInventoryOperation = errors.New("inventory item operation failed")
)
