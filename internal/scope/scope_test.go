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

package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wizmini/wizcore/internal/scope"
)

func TestLabel_RoundTripsThroughParse(t *testing.T) {
	cases := []scope.Scope{
		scope.NewCurrentFolder(),
		scope.NewEntireCurrentDrive(),
		scope.NewAllLocalDrives(),
		scope.NewDrive('D'),
	}
	for _, s := range cases {
		got, err := scope.Parse(s.Label())
		assert.NoError(t, err)
		assert.True(t, s.Equal(got), "label %q did not round-trip", s.Label())
	}
}

func TestParse_LowercaseDriveLetterUppercased(t *testing.T) {
	got, err := scope.Parse("d:")
	assert.NoError(t, err)
	assert.True(t, got.Equal(scope.NewDrive('D')))
	assert.Equal(t, "D:", got.Label())
}

func TestParse_RejectsInvalidDirective(t *testing.T) {
	_, err := scope.Parse("not-a-scope")
	assert.Error(t, err)

	_, err = scope.Parse("1:")
	assert.Error(t, err)
}

func TestEqual_DistinguishesDriveLetters(t *testing.T) {
	assert.False(t, scope.NewDrive('C').Equal(scope.NewDrive('D')))
	assert.True(t, scope.NewDrive('C').Equal(scope.NewDrive('C')))
	assert.False(t, scope.NewDrive('C').Equal(scope.NewCurrentFolder()))
}
