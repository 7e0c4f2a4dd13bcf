// Package shell provides the external builder adapter, shelling out to the
// platform build tool.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
	"go.trai.ch/zerr"
)

// destinations maps build platforms onto xcodebuild destination specifiers.
var destinations = map[domain.Platform]string{
	domain.PlatformMacOS:   "generic/platform=macOS",
	domain.PlatformIOS:     "generic/platform=iOS",
	domain.PlatformTvOS:    "generic/platform=tvOS",
	domain.PlatformWatchOS: "generic/platform=watchOS",
}

// Builder implements ports.Builder using xcodebuild.
type Builder struct {
	checkoutsDir string
	buildDir     string
	logger       ports.Logger
}

var _ ports.Builder = (*Builder)(nil)

// NewBuilder creates a Builder compiling working trees under checkoutsDir
// into buildDir.
func NewBuilder(checkoutsDir, buildDir string, logger ports.Logger) *Builder {
	return &Builder{
		checkoutsDir: checkoutsDir,
		buildDir:     buildDir,
		logger:       logger,
	}
}

// Build compiles the dependency's shared schemes for every requested
// platform and reports the produced framework bundles.
func (b *Builder) Build(ctx context.Context, node domain.BuildNode, opts domain.BuildOptions) ([]domain.BuiltArtifact, error) {
	workDir := filepath.Join(b.checkoutsDir, node.Dependency.Name())

	schemes, err := b.sharedSchemes(ctx, workDir)
	if err != nil {
		return nil, err
	}
	if len(schemes) == 0 {
		return nil, zerr.With(domain.ErrNoSharedSchemes, "dependency", node.Dependency.Name())
	}

	var artifacts []domain.BuiltArtifact
	for _, platform := range opts.Platforms {
		for _, scheme := range schemes {
			artifact, err := b.buildScheme(ctx, workDir, scheme, platform, opts)
			if err != nil {
				return nil, err
			}
			artifacts = append(artifacts, artifact)
		}
	}
	return artifacts, nil
}

// sharedSchemes lists the shared schemes of the project in workDir.
func (b *Builder) sharedSchemes(ctx context.Context, workDir string) ([]string, error) {
	out, err := b.run(ctx, workDir, "xcodebuild", "-list")
	if err != nil {
		return nil, err
	}

	var schemes []string
	inSchemes := false
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "Schemes:":
			inSchemes = true
		case inSchemes && trimmed == "":
			inSchemes = false
		case inSchemes:
			schemes = append(schemes, trimmed)
		}
	}
	return schemes, nil
}

func (b *Builder) buildScheme(ctx context.Context, workDir, scheme string, platform domain.Platform, opts domain.BuildOptions) (domain.BuiltArtifact, error) {
	configuration := opts.Configuration
	if configuration == "" {
		configuration = "Release"
	}

	outputDir := filepath.Join(b.buildDir, string(platform))
	args := []string{
		"build",
		"-scheme", scheme,
		"-configuration", configuration,
		"-destination", destinations[platform],
		"CONFIGURATION_BUILD_DIR=" + outputDir,
		"ONLY_ACTIVE_ARCH=NO",
		"CODE_SIGNING_REQUIRED=NO",
		"CODE_SIGN_IDENTITY=",
	}
	if opts.ToolchainIdentifier != "" {
		args = append(args, "-toolchain", opts.ToolchainIdentifier)
	}
	if opts.DerivedDataPath != "" {
		args = append(args, "-derivedDataPath", opts.DerivedDataPath)
	}

	if _, err := b.run(ctx, workDir, "xcodebuild", args...); err != nil {
		return domain.BuiltArtifact{}, err
	}

	bundle := filepath.Join(outputDir, scheme+".framework")
	return domain.BuiltArtifact{
		Platform:   platform,
		Name:       scheme,
		BundlePath: bundle,
		BinaryPath: filepath.Join(bundle, scheme),
	}, nil
}

// run executes a command in dir, streaming output to the logger and capturing
// it for error reports.
func (b *Builder) run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // the build tool invocation is constructed above
	cmd.Dir = dir
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = io.MultiWriter(&stdout, &logWriter{logger: b.logger, level: "info"})
	cmd.Stderr = io.MultiWriter(&stderr, &logWriter{logger: b.logger, level: "error"})

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}

		cmdErr := zerr.Wrap(err, domain.ErrCommandFailed.Error())
		cmdErr = zerr.With(cmdErr, "command", name+" "+strings.Join(args, " "))
		cmdErr = zerr.With(cmdErr, "exit_code", exitCode)
		return "", zerr.With(cmdErr, "output", strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
