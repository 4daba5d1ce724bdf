package telegram

import "bytes"

// ScanRecords is a bufio.SplitFunc for streaming transports. Records end at
// a line feed or an ETX; the terminator is not part of the token, and blank
// records are skipped.
func ScanRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for {
		if atEOF && start >= len(data) {
			return len(data), nil, nil
		}

		i := bytes.IndexAny(data[start:], "\n\x03")
		if i < 0 {
			if atEOF {
				rec := bytes.TrimSpace(data[start:])
				if len(rec) == 0 {
					return len(data), nil, nil
				}
				return len(data), rec, nil
			}
			// Request more data, discarding leading blank records.
			return start, nil, nil
		}

		rec := bytes.TrimRight(data[start:start+i], "\r ")
		if len(bytes.TrimSpace(rec)) > 0 {
			return start + i + 1, rec, nil
		}
		start += i + 1
	}
}
