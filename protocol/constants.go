package protocol

// Level I and level II limits.
const (
	// MaxDataLevel1 is the data limit for level I events
	MaxDataLevel1 = 8

	// MaxDataLevel2 is the data limit for level II events
	MaxDataLevel2 = 512

	// GUIDSize is the length of a GUID in bytes
	GUIDSize = 16
)

// Event classes.
const (
	// ClassProtocol is CLASS1.PROTOCOL, used for register access and bootloading
	ClassProtocol = 0

	// ClassAlarm is CLASS1.ALARM
	ClassAlarm = 1

	// ClassMeasurement is CLASS1.MEASUREMENT
	ClassMeasurement = 10

	// ClassInformation is CLASS1.INFORMATION
	ClassInformation = 20

	// ClassControl is CLASS1.CONTROL
	ClassControl = 30

	// ClassLevel2Level1Protocol is CLASS2.LEVEL1.PROTOCOL: level I protocol
	// events addressed by full GUID in the first 16 data bytes
	ClassLevel2Level1Protocol = 512

	// ClassLevel2Protocol is CLASS2.PROTOCOL
	ClassLevel2Protocol = 1024
)

// CLASS1.PROTOCOL types.
const (
	TypeGeneral                = 0
	TypeSegmentHeartbeat       = 1
	TypeNewNodeOnline          = 2
	TypeProbeAck               = 3
	TypeSetNickname            = 6
	TypeNicknameAccepted       = 7
	TypeDropNickname           = 8
	TypeReadRegister           = 9
	TypeRWResponse             = 10
	TypeWriteRegister          = 11
	TypeEnterBootLoader        = 12
	TypeAckBootLoader          = 13
	TypeNackBootLoader         = 14
	TypeStartBlock             = 15
	TypeBlockData              = 16
	TypeBlockDataAck           = 17
	TypeBlockDataNack          = 18
	TypeProgramBlockData       = 19
	TypeProgramBlockDataAck    = 20
	TypeProgramBlockDataNack   = 21
	TypeActivateNewImage       = 22
	TypeResetDevice            = 23
	TypePageRead               = 24
	TypePageWrite              = 25
	TypeRWPageResponse         = 26
	TypeHighEndServerProbe     = 27
	TypeHighEndServerResponse  = 28
	TypeIncrementRegister      = 29
	TypeDecrementRegister      = 30
	TypeWhoIsThere             = 31
	TypeWhoIsThereResponse     = 32
	TypeGetMatrixInfo          = 33
	TypeGetMatrixInfoResponse  = 34
	TypeGetEmbeddedMDF         = 35
	TypeGetEmbeddedMDFResponse = 36
	TypeExtendedPageRead       = 37
	TypeExtendedPageWrite      = 38
	TypeExtendedPageResponse   = 39
	TypeGetEventInterest       = 40
	TypeGetEventInterestResp   = 41
	TypeActivateNewImageAck    = 48
	TypeActivateNewImageNack   = 49
	TypeStartBlockAck          = 50
	TypeStartBlockNack         = 51
	TypeBlockChunkAck          = 52
	TypeBlockChunkNack         = 53
	TypeBootLoaderCheck        = 54
)

// Bootloader algorithm codes held in register 0x97.
const (
	// BootAlgorithmVSCP is the native VSCP block/chunk algorithm
	BootAlgorithmVSCP = 0x00

	// BootAlgorithmPIC1 is the Microchip PIC algorithm 1
	BootAlgorithmPIC1 = 0x01

	// BootAlgorithmAVR1 is the Atmel AVR algorithm 1
	BootAlgorithmAVR1 = 0x10

	// BootAlgorithmNXP1 is the NXP algorithm 1
	BootAlgorithmNXP1 = 0x20

	// BootAlgorithmNone means the device has no bootloader
	BootAlgorithmNone = 0xFF
)

// Standard register addresses (page independent, level I).
const (
	RegAlarmStatus         = 0x80
	RegVSCPMajorVersion    = 0x81
	RegVSCPMinorVersion    = 0x82
	RegNodeControl         = 0x83
	RegUserID              = 0x84 // 5 bytes
	RegManufacturerID      = 0x89 // 4 bytes
	RegManufacturerSubID   = 0x8D // 4 bytes
	RegNickname            = 0x91
	RegPageSelectMSB       = 0x92
	RegPageSelectLSB       = 0x93
	RegFirmwareMajor       = 0x94
	RegFirmwareMinor       = 0x95
	RegFirmwareSubMinor    = 0x96
	RegBootloaderAlgorithm = 0x97
	RegBufferSize          = 0x98
	RegPagesUsed           = 0x99
	RegStdDeviceFamily     = 0x9A // 4 bytes
	RegStdDeviceType       = 0x9E // 4 bytes
	RegDefaultConfig       = 0xA2
	RegFirmwareCodeMSB     = 0xA3
	RegFirmwareCodeLSB     = 0xA4
	RegGUID                = 0xD0 // 16 bytes
	RegMDFURL              = 0xE0 // 32 bytes

	// StandardRegistersStart is the first standard register
	StandardRegistersStart = 0x80

	// StandardRegistersCount is the size of the standard register block
	StandardRegistersCount = 0x80
)

// Priorities, highest first.
const (
	Priority0 = 0
	Priority1 = 1
	Priority2 = 2
	Priority3 = 3
	Priority4 = 4
	Priority5 = 5
	Priority6 = 6
	Priority7 = 7

	PriorityHigh   = Priority0
	PriorityNormal = Priority3
	PriorityLow    = Priority7
)

// Head bits.
const (
	// HeadPriorityMask selects the priority bits
	HeadPriorityMask = 0xE0

	// HeadHardCoded marks a node with a hard coded nickname
	HeadHardCoded = 0x10

	// HeadNoCRC tells the receiver not to verify the frame CRC
	HeadNoCRC = 0x08
)

// UDP frame positions.
const (
	FramePosPktType   = 0
	FramePosHead      = 1
	FramePosTimestamp = 3
	FramePosYear      = 7
	FramePosMonth     = 9
	FramePosDay       = 10
	FramePosHour      = 11
	FramePosMinute    = 12
	FramePosSecond    = 13
	FramePosClass     = 14
	FramePosType      = 16
	FramePosGUID      = 18
	FramePosSize      = 34
	FramePosData      = 36

	// FrameOverhead is the frame length without data: header plus CRC
	FrameOverhead = FramePosData + 2
)

// Packet types (high nibble of PKTTYPE).
const (
	// PacketTypeEvent marks a plain VSCP event frame
	PacketTypeEvent = 0x00
)

// Encryption codes (low nibble of PKTTYPE).
const (
	EncryptNone   = 0
	EncryptAES128 = 1
	EncryptAES192 = 2
	EncryptAES256 = 3

	// EncryptFromType takes the algorithm from the frame's own type byte
	EncryptFromType = 15
)
