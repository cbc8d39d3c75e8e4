// Package fs defines the capability contract shared by every filesystem
// backend in axmount. It re-exports the io/fs surface so backends and the
// mount layer import a single package, and adds the mutating capabilities
// (create, mkdir, remove, truncate, ownership) that io/fs leaves out.
// Capabilities are probed with interface assertions; a backend that does not
// implement one gets ErrNotSupported from the corresponding helper.
package fs

import (
	iofs "io/fs"
)

type (
	FS          = iofs.FS
	File        = iofs.File
	FileInfo    = iofs.FileInfo
	FileMode    = iofs.FileMode
	DirEntry    = iofs.DirEntry
	PathError   = iofs.PathError
	StatFS      = iofs.StatFS
	ReadDirFS   = iofs.ReadDirFS
	ReadDirFile = iofs.ReadDirFile
	WalkDirFunc = iofs.WalkDirFunc
)

const (
	ModeDir    = iofs.ModeDir
	ModeDevice = iofs.ModeDevice
	ModeType   = iofs.ModeType
	ModePerm   = iofs.ModePerm
)

var (
	ErrInvalid    = iofs.ErrInvalid
	ErrPermission = iofs.ErrPermission
	ErrExist      = iofs.ErrExist
	ErrNotExist   = iofs.ErrNotExist
	ErrClosed     = iofs.ErrClosed

	SkipDir = iofs.SkipDir
	SkipAll = iofs.SkipAll
)

var (
	ValidPath          = iofs.ValidPath
	ReadFile           = iofs.ReadFile
	ReadDir            = iofs.ReadDir
	Stat               = iofs.Stat
	WalkDir            = iofs.WalkDir
	FormatFileInfo     = iofs.FormatFileInfo
	FormatDirEntry     = iofs.FormatDirEntry
	FileInfoToDirEntry = iofs.FileInfoToDirEntry
)
