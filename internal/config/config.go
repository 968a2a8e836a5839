package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string

	// Media handling
	UploadDir     string
	OutputDir     string
	MaxUploadSize int64 // bytes

	// Pose estimation service (MediaPipe subprocess)
	PoseScriptPath         string
	PosePythonPath         string
	MinDetectionConfidence float64
	MinTrackingConfidence  float64

	// Measurement derivation
	// Landmarks below this visibility make the dependent measurement
	// unavailable; frames where no landmark reaches it count as no pose.
	MinLandmarkVisibility float64

	// Rule thresholds. These are the engine's configuration surface:
	// tunable without code changes, consumed by rules.DefaultRuleSets.
	SquatBackAngleMin   float64 // squat.back_angle.min
	SquatBackAngleMax   float64 // squat.back_angle.max
	SquatKneeAngleMin   float64 // squat.knee_angle.min (depth band)
	SquatKneeAngleMax   float64 // squat.knee_angle.max (depth band)
	SquatKneeToeMargin  float64 // squat.knee_over_toe.margin (normalized x)
	SittingNeckAngleMax float64 // sitting.neck_angle.max
	SittingBackAngleMin float64 // sitting.back_angle.min
	SittingBackAngleMax float64 // sitting.back_angle.max

	// Annotation
	AnnotateOutput bool

	// NATS (session result events)
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	SessionsSubject    string

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "posture-worker-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Media handling
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		OutputDir:     getEnv("OUTPUT_DIR", "outputs"),
		MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_SIZE", 100*1024*1024)), // 100MB

		// Pose estimation service
		PoseScriptPath:         getEnv("POSE_SCRIPT_PATH", ""),
		PosePythonPath:         getEnv("POSE_PYTHON_PATH", ""),
		MinDetectionConfidence: getEnvFloat("MIN_DETECTION_CONFIDENCE", 0.5),
		MinTrackingConfidence:  getEnvFloat("MIN_TRACKING_CONFIDENCE", 0.5),

		// Measurement derivation
		MinLandmarkVisibility: getEnvFloat("MIN_LANDMARK_VISIBILITY", 0.5),

		// Rule thresholds (canonical defaults recorded in DESIGN.md)
		SquatBackAngleMin:   getEnvFloat("SQUAT_BACK_ANGLE_MIN", 30),
		SquatBackAngleMax:   getEnvFloat("SQUAT_BACK_ANGLE_MAX", 60),
		SquatKneeAngleMin:   getEnvFloat("SQUAT_KNEE_ANGLE_MIN", 80),
		SquatKneeAngleMax:   getEnvFloat("SQUAT_KNEE_ANGLE_MAX", 120),
		SquatKneeToeMargin:  getEnvFloat("SQUAT_KNEE_TOE_MARGIN", 0),
		SittingNeckAngleMax: getEnvFloat("SITTING_NECK_ANGLE_MAX", 20),
		SittingBackAngleMin: getEnvFloat("SITTING_BACK_ANGLE_MIN", 80),
		SittingBackAngleMax: getEnvFloat("SITTING_BACK_ANGLE_MAX", 115),

		// Annotation
		AnnotateOutput: getEnvBool("ANNOTATE_OUTPUT", true),

		// NATS
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		SessionsSubject:    getEnv("SESSIONS_SUBJECT", "posture.sessions"),

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
