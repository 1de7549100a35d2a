// Package pointcloud loads x,y,z point data from a text resource.
//
// Input is one record per line, three comma-separated decimal numbers per
// record, no header and no quoting. Parsing is lenient per field and strict
// per row: a field that does not parse becomes 0 and is reported, while a row
// without exactly three fields is dropped. See Parse for the full rules.
//
// Key types: PointSet, Loader, ParseStats, ConversionError.
package pointcloud
