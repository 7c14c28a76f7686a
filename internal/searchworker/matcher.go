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

package searchworker

import (
	"strings"

	"github.com/gobwas/glob"
)

// isWildcardQuery reports whether query needs glob compilation rather
// than a plain substring test.
func isWildcardQuery(query string) bool {
	return strings.ContainsAny(query, "*?")
}

// compileMatcher builds the predicate for one Run's query. For a
// wildcard query it compiles with gobwas/glob and no separators, so
// `*` matches any run including path separators. For a plain query it is an
// ASCII-case-insensitive substring test.
func compileMatcher(queryLower string) func(filenameLower, pathLower string) bool {
	if queryLower == "" {
		return func(string, string) bool { return true }
	}
	if isWildcardQuery(queryLower) {
		g, err := glob.Compile(queryLower)
		if err != nil {
			// An unparseable pattern matches nothing rather than panicking
			// or falling back to a misleading substring test.
			return func(string, string) bool { return false }
		}
		return func(filenameLower, pathLower string) bool {
			return g.Match(filenameLower) || g.Match(pathLower)
		}
	}
	return func(filenameLower, pathLower string) bool {
		return strings.Contains(filenameLower, queryLower) || strings.Contains(pathLower, queryLower)
	}
}

func filenameOf(path string) string {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		return path[i+1:]
	}
	return path
}
