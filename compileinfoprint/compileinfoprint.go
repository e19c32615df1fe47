// compileinfoprint is imported for the side effect of printing the compileinfo
// to os.StdErr when a command starts.
package compileinfoprint

import "github.com/carbocation/segiou/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
