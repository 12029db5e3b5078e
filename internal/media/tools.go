package media

import (
	"fmt"
	"os/exec"
	"strings"
)

// ToolStatus reports whether an external binary is usable.
type ToolStatus struct {
	Name      string
	Command   string
	Available bool
	Optional  bool
	Detail    string
}

// CheckTools resolves the external tool chain from PATH. ffprobe and ffmpeg
// are required; mkvextract is an optional fallback.
func CheckTools(ffprobe, ffmpeg, mkvextract string) []ToolStatus {
	return []ToolStatus{
		checkBinary("ffprobe", ffprobe, false),
		checkBinary("ffmpeg", ffmpeg, false),
		checkBinary("mkvextract", mkvextract, true),
	}
}

func checkBinary(name, command string, optional bool) ToolStatus {
	command = strings.TrimSpace(command)
	if command == "" {
		command = name
	}
	status := ToolStatus{Name: name, Command: command, Optional: optional}
	resolved, err := exec.LookPath(command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", command)
		return status
	}
	status.Command = resolved
	status.Available = true
	return status
}

// MissingRequired returns the names of required tools that are unavailable.
func MissingRequired(statuses []ToolStatus) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
