// Package media turns captured stills into mail-ready bytes and holds the
// kiosk's current still between capture and delivery.
//
// Encoder produces deterministic JPEG output at a fixed quality and
// ToPortableText converts bytes to unwrapped standard base64 for JSON
// transport. StillStore is the in-memory hand-off point between the camera
// surface (or the API) and the delivery pipeline; LoadStill and DecodeStill
// use imaging so EXIF orientation from phone and DSLR captures is honoured.
package media
