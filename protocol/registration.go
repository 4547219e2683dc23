package protocol

import "encoding/hex"

// Contract names as registered on the settlement chain.
const (
	ContractSmileToken = "smile_token"
	ContractSmile      = "smile"
	ContractECDSA      = "ecdsa_secp256r1"
)

const (
	VerifierCairo = "cairo"
	VerifierNoir  = "noir"
)

// Registration is the payload of a contract registration message.
type Registration struct {
	ContractName string `json:"contract_name"`
	Verifier     string `json:"verifier"`
	ProgramID    []byte `json:"program_id"`
	StateDigest  []byte `json:"state_digest"`
}

func (r Registration) StateDigestHex() string {
	return hex.EncodeToString(r.StateDigest)
}

// Registrations returns the registrations of the two Cairo programs. The
// smile_token digest is the ASCII of the decimal genesis commitment.
func Registrations() []Registration {
	return []Registration{
		{
			ContractName: ContractSmileToken,
			Verifier:     VerifierCairo,
			ProgramID:    []byte{213},
			StateDigest:  []byte(FeltDecimal(GenesisCommitment())),
		},
		{
			ContractName: ContractSmile,
			Verifier:     VerifierCairo,
			ProgramID:    []byte{123},
			StateDigest:  []byte("666"),
		},
	}
}

// ECDSARegistration registers the signature verifier under its verification
// key. Its state digest is four zero bytes.
func ECDSARegistration(verificationKey []byte) Registration {
	return Registration{
		ContractName: ContractECDSA,
		Verifier:     VerifierNoir,
		ProgramID:    append([]byte(nil), verificationKey...),
		StateDigest:  make([]byte, 4),
	}
}
