// Package card models raw card dumps as handed over by a card reader.
//
// A Dump is a snapshot of everything the reader managed to read from one
// card: DESFire applications and files, FeliCa systems and services, MIFARE
// Classic sectors or CEPAS purses and histories. Decoders never talk to a card;
// they only call the accessors defined here, which fail with a *FormatError
// naming the missing application and file.
//
// Dumps are stored as JSON or YAML with byte fields written as hex strings.
package card
