package core

import (
	"os/exec"
	"regexp"
)

var (
	realityPrivatePattern = regexp.MustCompile(`PrivateKey:\s*(\S+)`)
	realityPublicPattern  = regexp.MustCompile(`PublicKey:\s*(\S+)`)
)

// GenerateRealityKeypair asks the engine binary for a fresh reality
// keypair and returns its raw output for caching.
func GenerateRealityKeypair(binPath string) (string, error) {
	if err := CheckExecutable(binPath); err != nil {
		return "", err
	}
	out, err := exec.Command(binPath, "generate", "reality-keypair").Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ParseRealityKeypair extracts the private and public key from keypair
// output. ok is false when either value is missing.
func ParseRealityKeypair(text string) (privateKey string, publicKey string, ok bool) {
	if m := realityPrivatePattern.FindStringSubmatch(text); m != nil {
		privateKey = m[1]
	}
	if m := realityPublicPattern.FindStringSubmatch(text); m != nil {
		publicKey = m[1]
	}
	return privateKey, publicKey, privateKey != "" && publicKey != ""
}
