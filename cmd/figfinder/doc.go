// Command figfinder reports which minifigures can be built from a BrickLink
// part inventory, using a local cache of minifigure inventories and price
// guides.
package main
