// Package pattern implements anchors for file mutations: literal or
// regular-expression patterns and a pure Apply function that substitutes or
// inserts at them, reporting explicitly whether the anchor matched.
package pattern
