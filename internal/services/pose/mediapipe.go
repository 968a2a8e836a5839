package pose

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"posture-worker-go/internal/models"
)

// MediaPipeProvider implements Provider using a Python MediaPipe Pose
// subprocess. Frames cross the boundary as length-prefixed JPEG on stdin;
// landmark sets come back as one JSON object per line on stdout.
type MediaPipeProvider struct {
	config  Config
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	mu      sync.Mutex
	started bool
}

// NewMediaPipeProvider creates a MediaPipe-backed provider. The Python
// process is started lazily on the first detection.
func NewMediaPipeProvider(config Config) (*MediaPipeProvider, error) {
	if findPoseScript(config.ScriptPath) == "" {
		return nil, fmt.Errorf("pose_service.py not found")
	}
	return &MediaPipeProvider{config: config}, nil
}

// Detect sends one frame to the pose service and decodes the landmark set.
// A frame without a detectable pose returns (nil, nil).
func (p *MediaPipeProvider) Detect(frame *gocv.Mat) (*models.PoseLandmarks, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Length prefix (4 bytes big-endian) then the JPEG payload.
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := p.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write frame length: %w", err)
	}
	if _, err := p.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write frame data: %w", err)
	}

	line, err := p.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read pose response: %w", err)
	}

	var response struct {
		Pose *jsonPose `json:"pose"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse pose response: %w", err)
	}

	if response.Pose == nil {
		return nil, nil
	}
	return response.Pose.toLandmarks(), nil
}

// Close shuts down the Python process.
func (p *MediaPipeProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return nil
	}

	if p.stdin != nil {
		p.stdin.Close()
	}

	err := p.cmd.Wait()
	p.started = false
	p.cmd = nil
	p.stdin = nil
	p.stdout = nil

	return err
}

func (p *MediaPipeProvider) ensureStarted() error {
	if p.started {
		return nil
	}

	scriptPath := findPoseScript(p.config.ScriptPath)
	if scriptPath == "" {
		return fmt.Errorf("pose_service.py not found")
	}

	pythonPath := p.config.PythonPath
	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	p.cmd = exec.Command(pythonPath, scriptPath,
		"--min-detection-confidence", strconv.FormatFloat(p.config.MinDetectionConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(p.config.MinTrackingConfidence, 'f', -1, 64),
	)

	stdin, err := p.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Surface the service's own diagnostics.
	p.cmd.Stderr = os.Stderr

	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	p.stdin = stdin
	p.stdout = bufio.NewReader(stdout)
	p.started = true

	log.Info().Str("script", scriptPath).Str("python", pythonPath).Msg("Pose service started")
	return nil
}

func findPoseScript(override string) string {
	if override != "" {
		if _, err := os.Stat(override); err == nil {
			return override
		}
		return ""
	}

	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/pose_service.py",
		"../scripts/pose_service.py",
		filepath.Join(execDir, "scripts/pose_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if absPath, err := filepath.Abs(path); err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a project virtualenv.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if absPath, err := filepath.Abs(path); err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonPose is the wire structure from the Python pose service.
type jsonPose struct {
	Points []struct {
		X          float64 `json:"x"`
		Y          float64 `json:"y"`
		Z          float64 `json:"z"`
		Visibility float64 `json:"visibility"`
	} `json:"points"`
}

func (jp *jsonPose) toLandmarks() *models.PoseLandmarks {
	lm := &models.PoseLandmarks{}
	for i := 0; i < models.NumLandmarks && i < len(jp.Points); i++ {
		lm.Points[i] = models.Landmark{
			X:          jp.Points[i].X,
			Y:          jp.Points[i].Y,
			Z:          jp.Points[i].Z,
			Visibility: jp.Points[i].Visibility,
		}
	}
	return lm
}
