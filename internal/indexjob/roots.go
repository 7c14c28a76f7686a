// Copyright 2025 The WizMini Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package indexjob

import (
	"fmt"
	"os"
	"strings"

	"github.com/wizmini/wizcore/internal/scope"
)

// rootSpec is one volume or folder the job enumerates. driveLetter is
// 0 when the process working directory is not itself on a lettered
// drive (e.g. running off a non-Windows filesystem), in which case the
// job never attempts live NTFS for this root and goes straight to
// dirwalk.
type rootSpec struct {
	driveLetter  byte
	dirwalkPath  string
	folderFilter string // lowercase, backslash-normalized prefix; "" = no filter
}

// statDriveRoot is overridden in tests so AllLocalDrives doesn't
// depend on the host actually having lettered drives mounted.
var statDriveRoot = func(letter byte) bool {
	info, err := os.Stat(string(letter) + `:\`)
	return err == nil && info.IsDir()
}

// resolveRoots maps a scope to the volumes and folders it covers.
func resolveRoots(sc scope.Scope) ([]rootSpec, error) {
	switch sc.Kind {
	case scope.CurrentFolder:
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("indexjob: resolving current folder: %w", err)
		}
		return []rootSpec{{
			driveLetter:  driveLetterOf(cwd),
			dirwalkPath:  cwd,
			folderFilter: normalizeFolderFilter(cwd),
		}}, nil

	case scope.EntireCurrentDrive:
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("indexjob: resolving current drive: %w", err)
		}
		letter := driveLetterOf(cwd)
		return []rootSpec{{driveLetter: letter, dirwalkPath: drivePath(letter, cwd)}}, nil

	case scope.AllLocalDrives:
		var roots []rootSpec
		for letter := byte('A'); letter <= 'Z'; letter++ {
			if statDriveRoot(letter) {
				roots = append(roots, rootSpec{driveLetter: letter, dirwalkPath: drivePath(letter, "")})
			}
		}
		return roots, nil

	case scope.DriveScope:
		return []rootSpec{{driveLetter: sc.Drive, dirwalkPath: drivePath(sc.Drive, "")}}, nil

	default:
		return nil, fmt.Errorf("indexjob: unknown scope kind %v", sc.Kind)
	}
}

func driveLetterOf(path string) byte {
	if len(path) >= 2 && path[1] == ':' && isLetter(path[0]) {
		return upper(path[0])
	}
	return 0
}

func drivePath(letter byte, fallback string) string {
	if letter == 0 {
		if fallback != "" {
			return fallback
		}
		return "."
	}
	return string(letter) + `:\`
}

// normalizeFolderFilter renders cwd the way CurrentFolder items'
// materialized paths are compared against: lowercase, backslashes,
// trailing separator so a prefix match doesn't accidentally include a
// sibling folder sharing a name prefix.
func normalizeFolderFilter(cwd string) string {
	normalized := strings.ToLower(strings.ReplaceAll(cwd, "/", `\`))
	if !strings.HasSuffix(normalized, `\`) {
		normalized += `\`
	}
	return normalized
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
