package cdc2

import "fmt"

// AckCode is the acknowledgement byte of an extended reply.
type AckCode byte

// Acknowledgement codes.
const (
	// AckSuccess indicates the device accepted the command.
	AckSuccess AckCode = 0x76

	// NackPacketCRC indicates the device computed a different frame CRC.
	NackPacketCRC AckCode = 0xCE

	// NackPacketLength indicates a payload shorter than the command requires.
	NackPacketLength AckCode = 0xD0

	// NackTransferSize indicates a transfer exceeding the negotiated size.
	NackTransferSize AckCode = 0xD1

	// NackProgramCRC indicates a program data checksum mismatch.
	NackProgramCRC AckCode = 0xD2

	// NackProgramFile indicates an invalid program file.
	NackProgramFile AckCode = 0xD3

	// NackUninitializedTransfer indicates transfer data without an
	// initialized transfer.
	NackUninitializedTransfer AckCode = 0xD4

	// NackInvalidInitialization indicates a malformed transfer setup.
	NackInvalidInitialization AckCode = 0xD5

	// NackAlignment indicates transfer data that is not word aligned.
	NackAlignment AckCode = 0xD6

	// NackAddress indicates a transfer address outside the target region.
	NackAddress AckCode = 0xD7

	// NackIncomplete indicates a transfer finalized before all data arrived.
	NackIncomplete AckCode = 0xD8

	// NackNoDirectory indicates a file path whose directory does not exist.
	NackNoDirectory AckCode = 0xD9

	// NackMaxUserFiles indicates the file system is at its file limit.
	NackMaxUserFiles AckCode = 0xDA

	// NackFileExists indicates the target file already exists.
	NackFileExists AckCode = 0xDB

	// NackStorageFull indicates the file system is out of space.
	NackStorageFull AckCode = 0xDC

	// NackGeneral is the catch-all failure code.
	NackGeneral AckCode = 0xFF
)

// String returns the acknowledgement code name.
func (a AckCode) String() string {
	switch a {
	case AckSuccess:
		return "ACK"
	case NackPacketCRC:
		return "NACK_PACKET_CRC"
	case NackPacketLength:
		return "NACK_PACKET_LENGTH"
	case NackTransferSize:
		return "NACK_TRANSFER_SIZE"
	case NackProgramCRC:
		return "NACK_PROGRAM_CRC"
	case NackProgramFile:
		return "NACK_PROGRAM_FILE"
	case NackUninitializedTransfer:
		return "NACK_UNINITIALIZED_TRANSFER"
	case NackInvalidInitialization:
		return "NACK_INVALID_INITIALIZATION"
	case NackAlignment:
		return "NACK_ALIGNMENT"
	case NackAddress:
		return "NACK_ADDRESS"
	case NackIncomplete:
		return "NACK_INCOMPLETE"
	case NackNoDirectory:
		return "NACK_NO_DIRECTORY"
	case NackMaxUserFiles:
		return "NACK_MAX_USER_FILES"
	case NackFileExists:
		return "NACK_FILE_EXISTS"
	case NackStorageFull:
		return "NACK_STORAGE_FULL"
	case NackGeneral:
		return "NACK"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess reports whether the code acknowledges the command.
func (a AckCode) IsSuccess() bool {
	return a == AckSuccess
}

// NackError reports a failure acknowledgement from the device.
type NackError struct {
	// Code is the acknowledgement byte the device answered with.
	Code AckCode
}

// Error formats the code name and raw byte.
func (e *NackError) Error() string {
	return fmt.Sprintf("device nack: %s (%#02x)", e.Code, byte(e.Code))
}
