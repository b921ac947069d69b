package system

// VersionResponse 서버 버전 정보 응답
type VersionResponse struct {
	Version string `json:"version" example:"v1.2.0"`
	// Git 커밋 해시
	Commit string `json:"commit" example:"abc1234"`
	// 빌드 시간(UTC, RFC3339)
	BuildDate string `json:"build_date" example:"2026-01-01T14:00:00Z"`
	GoVersion string `json:"go_version" example:"go1.24.0"`
	OS        string `json:"os" example:"linux"`
	Arch      string `json:"arch" example:"amd64"`
	Dirty     bool   `json:"dirty" example:"false"`
}
