// Package plants stores catalog records and the denormalized image
// generation state the processor writes back onto them.
package plants
