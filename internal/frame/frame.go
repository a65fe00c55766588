package frame

import (
	"hash"
	"hash/fnv"
	"path"
	"strconv"
)

type (
	// Frame identifies a profiled method independently of any single
	// invocation of it.
	Frame struct {
		File     string `json:"filename,omitempty"`
		Function string `json:"function,omitempty"`
		Line     uint32 `json:"lineno,omitempty"`
		Module   string `json:"module,omitempty"`
		Package  string `json:"package,omitempty"`
		Path     string `json:"abs_path,omitempty"`
	}
)

func (f Frame) PackageBaseName() string {
	if f.Module != "" {
		return f.Module
	} else if f.Package != "" {
		return path.Base(f.Package)
	}
	return ""
}

// FullName returns the display name of the method, e.g. Array#each.
func (f Frame) FullName() string {
	owner := f.PackageBaseName()
	function := f.Function
	if function == "" {
		function = "<unknown>"
	}
	if owner == "" {
		return function
	}
	return owner + "#" + function
}

// WriteToHash writes the fields identifying the method. Paths and line
// numbers are left out since they change as the source of an application
// changes while the method stays the same.
func (f Frame) WriteToHash(h hash.Hash) {
	var s string
	if f.Package != "" || f.Module != "" {
		s = f.PackageBaseName()
	} else if f.File != "" {
		s = f.File
	} else {
		s = "-"
	}
	h.Write([]byte(s))
	if f.Function != "" {
		s = f.Function
	} else {
		s = "-"
	}
	h.Write([]byte(s))
}

// Fingerprint returns a stable identity key for the method.
func (f Frame) Fingerprint() uint64 {
	h := fnv.New64()
	f.WriteToHash(h)
	return h.Sum64()
}

func (f Frame) String() string {
	if f.Path == "" {
		return f.FullName()
	}
	return f.FullName() + " (" + f.Path + ":" + strconv.FormatUint(uint64(f.Line), 10) + ")"
}
