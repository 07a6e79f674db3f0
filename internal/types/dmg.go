package types

// Disk image and GPT partition table constants
const (
	// GPT (GUID Partition Table) header and partition entry offsets
	// Reference: UEFI Specification Part 1, Chapter 5

	GPTHeaderOffset       = 512  // LBA 1: Primary GPT header location (byte offset)
	GPTEntrySize          = 128  // Size of each GPT partition entry (bytes)
	GPTEntriesStartOffset = 1024 // LBA 2: Standard partition entries location (byte offset)
	GPTMaxEntries         = 128  // Number of entries in a standard partition array
	GPTSectorSize         = 512  // Logical block size assumed for disk images

	// GPTSignature is the signature at the start of the GPT header.
	GPTSignature = "EFI PART"
)

// HFSPlusGPTPartitionUUID is the partition type for a partition that contains an HFS+ or HFSX volume.
const HFSPlusGPTPartitionUUID string = "48465300-0000-11AA-AA11-00306543ECAC"
