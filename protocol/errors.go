package protocol

import "errors"

var (
	// ErrEncoding reports an identifier the selected ByteArray codec cannot represent.
	ErrEncoding = errors.New("encoding error")

	// ErrCommitmentInput reports a negative or non-integer amount fed to the hash chain.
	ErrCommitmentInput = errors.New("commitment input error")

	// ErrCalldataShape reports an incomplete or inconsistent builder input.
	ErrCalldataShape = errors.New("calldata shape error")

	errByteArrayTooLong = errors.New("ByteArray too long")
)
