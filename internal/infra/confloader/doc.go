// Package confloader merges configuration layers into a typed struct
// and follows edits of the configuration file.
//
// Layers, highest priority first:
//
//  1. Overrides (command-line flags, dotted keys)
//  2. Environment variables (OTPSLOT_SECTION_KEY)
//  3. YAML file
//  4. Whatever the target struct already holds (defaults)
//
// Loader is built on koanf; Watcher on fsnotify.
package confloader
