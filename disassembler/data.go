package disassembler

import (
	"fmt"
	"strings"
)

// minStringLen is the shortest NUL-terminated run written as .ASCIZ.
const minStringLen = 4

// isPrintableASCII checks if a byte is a standard printable ASCII character.
func isPrintableASCII(b byte) bool {
	return b >= 0x20 && b <= 0x7E
}

// formatData renders bytes that control flow never reached. Runs are split
// wherever a label points into the data.
func formatData(data []byte, addr int, labels map[int]LabelType) string {
	var sb strings.Builder
	start := 0
	for i := 1; i <= len(data); i++ {
		if i < len(data) {
			if _, ok := labels[addr+i]; !ok {
				continue
			}
		}
		if t, ok := labels[addr+start]; ok {
			fmt.Fprintf(&sb, "%s:\n", labelName(addr+start, t))
		}
		sb.WriteString(formatRun(data[start:i]))
		start = i
	}
	return sb.String()
}

// formatRun writes NUL-terminated printable runs as .ASCIZ and the rest as
// .BYTE lines.
func formatRun(data []byte) string {
	var sb strings.Builder
	n := len(data)
	i := 0
	for i < n {
		start := i
		for start < n && !isPrintableASCII(data[start]) {
			start++
		}
		end := start
		for end < n && isPrintableASCII(data[end]) {
			end++
		}

		if end < n && data[end] == 0 && end-start >= minStringLen {
			sb.WriteString(formatBytes(data[i:start]))
			fmt.Fprintf(&sb, "\t.ASCIZ \"%s\"\n", escape(data[start:end]))
			i = end + 1
			continue
		}

		sb.WriteString(formatBytes(data[i:end]))
		i = end
	}
	return sb.String()
}

func escape(b []byte) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return r.Replace(string(b))
}

// formatBytes formats bytes as .BYTE directives, eight per line.
func formatBytes(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	var sb strings.Builder
	const bytesPerLine = 8

	for i := 0; i < len(data); i += bytesPerLine {
		end := min(i+bytesPerLine, len(data))
		sb.WriteString("\t.BYTE  ")
		for j, b := range data[i:end] {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(octal(int(b)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
