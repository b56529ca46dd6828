// Package geometry edits vertex attributes spread across several buffers.
//
// A mesh may keep positions, normals and texture coordinates in separate
// structured buffers. The functions here look a semantic up in the first
// buffer whose layout carries it, then read or write through
// buffer.ByteBuffer attribute packing. Matrices are row-major f32.Mat4
// values transforming column vectors.
package geometry
