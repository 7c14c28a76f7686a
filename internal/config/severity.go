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

package config

// LogSeverity is the sum type of logging verbosity levels, ordered
// from least to most verbose.
type LogSeverity string

const (
	OFF     LogSeverity = "OFF"
	ERROR   LogSeverity = "ERROR"
	WARNING LogSeverity = "WARNING"
	INFO    LogSeverity = "INFO"
	DEBUG   LogSeverity = "DEBUG"
	TRACE   LogSeverity = "TRACE"
)

// rank orders severities so callers can compare "is at least as verbose
// as" without string equality chains.
var rank = map[LogSeverity]int{
	OFF:     0,
	ERROR:   1,
	WARNING: 2,
	INFO:    3,
	DEBUG:   4,
	TRACE:   5,
}

// Enabled reports whether a message logged at msgSeverity should be
// emitted given the configured threshold severity.
func Enabled(threshold, msgSeverity LogSeverity) bool {
	return rank[msgSeverity] <= rank[threshold]
}
