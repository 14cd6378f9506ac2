// Command dumpplt prints every symbol name reachable through the dynamic
// relocation tables of every module mapped into this process: the
// non-PLT REL/RELA tables and the PLT itself.
package main

import (
	"flag"
	"fmt"

	"github.com/xyproto/goplt"
	"github.com/xyproto/goplt/internal/dynamic"
)

func main() {
	verbose := flag.Bool("verbose", false, "trace internal parsing steps to stderr")
	flag.Parse()
	goplt.Verbose = *verbose

	mods := goplt.CollectModules()
	fmt.Printf("collected %d modules\n", len(mods))

	for _, mod := range mods {
		fmt.Printf("[%s] base: %#x\n", mod.Name, mod.Base())

		lib, err := goplt.Open(mod)
		if err != nil {
			fmt.Printf("\tfailed to parse as dynamic library, skipping: %v\n", err)
			continue
		}

		symbols, ok := lib.Symbols()
		if !ok {
			fmt.Println("\tno dynamic symbol table, skipping")
			continue
		}
		strings := lib.StringTable()

		fmt.Println("\tdynamic addend relocations:")
		if relas, ok := lib.AddendRelocations(); ok {
			for i := 0; i < relas.Len(); i++ {
				printSymbol(relas.At(i).SymbolIndex(), symbols, strings)
			}
		}

		fmt.Println("\tdynamic relocations:")
		if rels, ok := lib.Relocations(); ok {
			for i := 0; i < rels.Len(); i++ {
				printSymbol(rels.At(i).SymbolIndex(), symbols, strings)
			}
		}

		fmt.Println("\tplt:")
		if plt, ok, err := lib.Plt(); err != nil {
			fmt.Printf("\t\tfailed to read plt: %v\n", err)
		} else if ok {
			switch plt.Kind {
			case dynamic.PltWithAddend:
				for i := 0; i < plt.Rela.Len(); i++ {
					printSymbol(plt.Rela.At(i).SymbolIndex(), symbols, strings)
				}
			default:
				for i := 0; i < plt.Rel.Len(); i++ {
					printSymbol(plt.Rel.At(i).SymbolIndex(), symbols, strings)
				}
			}
		}
		fmt.Println()
	}
}

func printSymbol(index uint32, symbols dynamic.SymbolTable, strings dynamic.StringTable) {
	name, ok := symbols.ResolveName(index, strings)
	if !ok || name == "" {
		return
	}
	fmt.Printf("\t\t%s\n", name)
}
