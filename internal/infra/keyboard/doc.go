// Package keyboard delivers generated tokens the way a USB HID keyboard
// would: one keystroke at a time, optionally paced, followed by Enter.
package keyboard
