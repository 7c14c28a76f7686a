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

package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// EncodeCheckpoints writes one "DRIVE,JOURNAL_ID,NEXT_USN" line per
// checkpoint.
func EncodeCheckpoints(w io.Writer, checkpoints []Checkpoint) error {
	bw := bufio.NewWriter(w)
	for _, c := range checkpoints {
		if _, err := fmt.Fprintf(bw, "%c,%d,%d\n", c.Drive, c.JournalID, c.NextUSN); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeCheckpoints parses the checkpoint file line by line. Each line
// is parsed independently; an unparseable line is dropped rather than
// failing the whole read.
func DecodeCheckpoints(r io.Reader) []Checkpoint {
	var out []Checkpoint
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c, ok := parseCheckpointLine(line)
		if !ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

func parseCheckpointLine(line string) (Checkpoint, bool) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 || len(parts[0]) != 1 {
		return Checkpoint{}, false
	}
	journalID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Checkpoint{}, false
	}
	nextUsn, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Checkpoint{}, false
	}
	return Checkpoint{Drive: parts[0][0], JournalID: journalID, NextUSN: nextUsn}, true
}
