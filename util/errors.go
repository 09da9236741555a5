// Package util provides leaf helpers shared by the mockzfs engine:
// dataset name handling, human-readable size parsing, and the error
// taxonomy raised by engine operations.
package util

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an engine error for programmatic handling.
type ErrorKind int

const (
	// ErrUnknown indicates an unclassified error.
	ErrUnknown ErrorKind = iota
	// ErrDatasetName indicates an invalid dataset name string.
	ErrDatasetName
	// ErrDatasetType indicates the wrong dataset variant for an operation.
	ErrDatasetType
	// ErrDatasetExists indicates a name collision in a sibling collection.
	ErrDatasetExists
	// ErrInactiveDataset indicates an operation on a non-active dataset.
	ErrInactiveDataset
	// ErrInvalidArgument indicates malformed recursive args or a bad rename target.
	ErrInvalidArgument
	// ErrInvalidFileType indicates archive/restore hit an unsupported node.
	ErrInvalidFileType
	// ErrUnmountable indicates a mount precondition failure.
	ErrUnmountable
	// ErrOverlayMount indicates a mount onto a non-empty mountpoint.
	ErrOverlayMount
	// ErrFilesystemBusy indicates an unmount with submounts present.
	ErrFilesystemBusy
	// ErrSnapshotHold indicates a destroy of a held snapshot.
	ErrSnapshotHold
	// ErrDescendant indicates a non-recursive destroy over a non-leaf.
	ErrDescendant
	// ErrDependant indicates a destroy of a clone origin not in the destroy set.
	ErrDependant
	// ErrReadOnlyProperty indicates a write to a read-only property.
	ErrReadOnlyProperty
	// ErrUnsupportedProperty indicates a property not valid for this type.
	ErrUnsupportedProperty
	// ErrBadHumanNumber indicates an unparseable human size.
	ErrBadHumanNumber
	// ErrNoSuchPool indicates a pool teardown on a missing pool.
	ErrNoSuchPool
	// ErrNotImplemented indicates a property or command outside the
	// supported set. Callers relying on unsupported semantics fail loudly.
	ErrNotImplemented
)

// String returns the symbolic name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrDatasetName:
		return "DatasetNameError"
	case ErrDatasetType:
		return "DatasetTypeError"
	case ErrDatasetExists:
		return "DatasetExistsError"
	case ErrInactiveDataset:
		return "InactiveDatasetError"
	case ErrInvalidArgument:
		return "InvalidArgumentError"
	case ErrInvalidFileType:
		return "InvalidFileTypeError"
	case ErrUnmountable:
		return "UnmountableError"
	case ErrOverlayMount:
		return "OverlayMountError"
	case ErrFilesystemBusy:
		return "FilesystemBusyError"
	case ErrSnapshotHold:
		return "SnapshotHoldError"
	case ErrDescendant:
		return "DescendantError"
	case ErrDependant:
		return "DependantError"
	case ErrReadOnlyProperty:
		return "ReadOnlyPropertyError"
	case ErrUnsupportedProperty:
		return "UnsupportedPropertyError"
	case ErrBadHumanNumber:
		return "BadHumanNumberError"
	case ErrNoSuchPool:
		return "NoSuchPoolError"
	case ErrNotImplemented:
		return "NotImplementedError"
	default:
		return "UnknownError"
	}
}

// Error is a structured engine error: a symbolic kind plus a message.
// Dataset optionally names the dataset the failure is about, e.g. the
// dangling clone origin of a DependantError.
type Error struct {
	Kind    ErrorKind
	Message string
	Dataset string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errorf builds an Error of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is (or wraps) an Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or ErrUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrUnknown
}
