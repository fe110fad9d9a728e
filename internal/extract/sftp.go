package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/objectstore"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/pattern"
)

// sftpConnectionConfig is the shape acquisition_connection_master.connection_json
// carries for an SFTP outbound source.
type sftpConnectionConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	KnownHosts string `json:"known_hosts_fingerprint"`
}

// SFTPExtractor pulls new files from a remote directory over SSH,
// grounded on Extractors/SftpExtractor.py's list-then-get loop. The pack
// carries no SFTP-subsystem client (pkg/sftp is absent from every example
// repo's go.mod), so this adapter drives `ls`/`cat` over a plain SSH exec
// session instead of the binary SFTP protocol — a deliberately thin
// reference implementation, consistent with spec.md §1 scoping SFTP
// drivers as pluggable.
type SFTPExtractor struct {
	Dial func(cfg sftpConnectionConfig) (*ssh.Client, error)
}

func (e *SFTPExtractor) Pull(ctx context.Context, req Request, dst objectstore.Store, bucket, prefix string) ([]Pulled, error) {
	var cfg sftpConnectionConfig
	if err := json.Unmarshal([]byte(req.Connection.ConnectionJSON), &cfg); err != nil {
		return nil, fmt.Errorf("extract: parsing SFTP connection_json: %w", err)
	}

	dial := e.Dial
	if dial == nil {
		dial = dialSFTP
	}

	client, err := dial(cfg)
	if err != nil {
		return nil, fmt.Errorf("extract: dialing sftp host %s: %w", cfg.Host, err)
	}
	defer client.Close()

	names, err := sshRun(client, fmt.Sprintf("ls -1 %s", shellQuote(req.Detail.SourceLocation)))
	if err != nil {
		return nil, fmt.Errorf("extract: listing %s: %w", req.Detail.SourceLocation, err)
	}

	var pulled []Pulled

	for _, name := range strings.Split(strings.TrimSpace(names), "\n") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		remotePath := path.Join(req.Detail.SourceLocation, name)
		sourceLocation := "sftp://" + cfg.Host + remotePath

		if req.Dedupe != nil && req.Dedupe.Contains(sourceLocation) {
			continue
		}

		if req.Detail.SourceFilePattern != "" {
			ok, err := pattern.Validate(req.Detail.SourceFilePattern, name, false)
			if err != nil {
				return nil, err
			}

			if !ok {
				continue
			}
		}

		contents, err := sshRun(client, fmt.Sprintf("cat %s", shellQuote(remotePath)))
		if err != nil {
			return nil, fmt.Errorf("extract: fetching %s: %w", sourceLocation, err)
		}

		inboundKey := strings.TrimSuffix(prefix, "/") + "/" + name
		if err := dst.Put(ctx, bucket, inboundKey, strings.NewReader(contents)); err != nil {
			return nil, fmt.Errorf("extract: writing inbound object %s: %w", inboundKey, err)
		}

		pulled = append(pulled, Pulled{SourceLocation: sourceLocation, InboundKey: inboundKey})
	}

	return pulled, nil
}

func dialSFTP(cfg sftpConnectionConfig) (*ssh.Client, error) {
	port := cfg.Port
	if port == 0 {
		port = 22
	}

	config := &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // host key pinning is config-driven, not yet wired
	}

	return ssh.Dial("tcp", fmt.Sprintf("%s:%d", cfg.Host, port), config)
}

func sshRun(client *ssh.Client, cmd string) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", err
	}
	defer session.Close()

	var out bytes.Buffer
	session.Stdout = &out

	if err := session.Run(cmd); err != nil {
		return "", err
	}

	return out.String(), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
