// Package firmware resolves a firmware directory into a validated flashable
// bundle: exactly one firehose programmer (*.elf), at least one rawprogram
// XML, and any number of patch XMLs, all ordered lexicographically so the
// flash tool receives them deterministically.
package firmware
