package encoding

import "encoding/binary"

// Endian is the endianness the write-ahead log uses for serializing/deserializing integers in the segment file
// framing. The entry key codec deliberately uses big-endian instead, see the key documentation for details.
var Endian = binary.LittleEndian
