package datagen

// Version is the release of the module. Overridden at build time with -ldflags "-X".
var Version = "0.1.0"
