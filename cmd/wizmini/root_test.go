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

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wizmini/wizcore/internal/config"
	"github.com/wizmini/wizcore/internal/scope"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestResolveVisibility(t *testing.T) {
	cases := []struct {
		name           string
		show, hide, hn bool
		want           bool
	}{
		{"default visible", false, false, false, true},
		{"hide wins over default", false, true, false, false},
		{"hidden alias", false, false, true, false},
		{"show overrides hide", true, true, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resetViper(t)
			viper.Set("show", tc.show)
			viper.Set("hide", tc.hide)
			viper.Set("hidden", tc.hn)
			assert.Equal(t, tc.want, resolveVisibility())
		})
	}
}

func TestResolveScope_FlagWins(t *testing.T) {
	resetViper(t)
	dir := t.TempDir()
	require.NoError(t, config.SaveScopeLabel(dir, "current-folder"))
	viper.Set("scope", "d:")

	got, err := resolveScope(dir)
	require.NoError(t, err)
	assert.True(t, got.Equal(scope.NewDrive('D')))
}

func TestResolveScope_FallsBackToPersistedLabel(t *testing.T) {
	resetViper(t)
	dir := t.TempDir()
	require.NoError(t, config.SaveScopeLabel(dir, "entire-current-drive"))

	got, err := resolveScope(dir)
	require.NoError(t, err)
	assert.True(t, got.Equal(scope.NewEntireCurrentDrive()))
}

func TestResolveScope_DefaultsToAllLocalDrivesWhenUnset(t *testing.T) {
	resetViper(t)
	got, err := resolveScope(t.TempDir())
	require.NoError(t, err)
	assert.True(t, got.Equal(scope.NewAllLocalDrives()))
}

func TestResolveScope_RejectsInvalidFlag(t *testing.T) {
	resetViper(t)
	viper.Set("scope", "not-a-scope")
	_, err := resolveScope(t.TempDir())
	assert.Error(t, err)
}

func TestOpenDebugLogPath_PrefersStateDir(t *testing.T) {
	dir := t.TempDir()
	got, err := openDebugLogPath(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, config.AppName+"-debug.log"), got)
	assert.FileExists(t, got)
}

func TestOpenDebugLogPath_FallsBackWhenStateDirUnwritable(t *testing.T) {
	parent := t.TempDir()
	unwritable := filepath.Join(parent, "locked")
	require.NoError(t, os.MkdirAll(unwritable, 0o555))
	t.Cleanup(func() { _ = os.Chmod(unwritable, 0o755) })

	// Under an unprivileged user 0o555 blocks writes, so the log must
	// land in the fallback location; root-run test environments can
	// still write to the locked directory, so there only the file's
	// existence is asserted.
	got, err := openDebugLogPath(unwritable)
	if err != nil {
		t.Skip("neither candidate debug-log location is writable in this environment")
	}
	assert.FileExists(t, got)
	if os.Geteuid() > 0 {
		assert.NotEqual(t, filepath.Join(unwritable, config.AppName+"-debug.log"), got)
	}
}
