package htmlparser

import "strings"

type tagSet map[string]bool

func newTagSet(names string) tagSet {
	s := make(tagSet)
	for _, n := range strings.Split(names, ",") {
		s[n] = true
	}
	return s
}

var (
	// Elements that can never have content.
	voidElements = newTagSet("area,base,basefont,br,col,embed,frame,hr,img,input,isindex,keygen,link,meta,param,source,track,wbr")

	// Elements closed by a start tag of the same name.
	closeSelf = newTagSet("colgroup,dd,dt,li,options,p,td,tfoot,th,thead,tr,source")

	// Elements whose content is raw text up to their own end tag.
	special = newTagSet("script,style")

	inlineElements = newTagSet("a,abbr,acronym,applet,b,basefont,bdo,big,br,button,cite,code,del,dfn,em,font,i,iframe,img,input,ins,kbd,label,map,noscript,object,q,s,samp,script,select,small,span,strike,strong,sub,sup,svg,textarea,tt,u,var")

	// Containers that accept phrasing content only and are closed by the
	// first flow element opened inside them.
	phrasingOnly = newTagSet("p")

	nonPhrasing = newTagSet("address,article,aside,base,blockquote,body,caption,col,colgroup,dd,details,dialog,div,dl,dt,fieldset,figcaption,figure,footer,form,h1,h2,h3,h4,h5,h6,head,header,hgroup,hr,html,legend,li,menuitem,meta,ol,optgroup,option,param,rp,rt,source,style,summary,tbody,td,tfoot,th,thead,title,tr,track,ul")
)

// IsVoid reports whether tag never has content.
func IsVoid(tag string) bool {
	return voidElements[strings.ToLower(tag)]
}

// IsSpecial reports whether tag holds raw text (script and style).
func IsSpecial(tag string) bool {
	return special[strings.ToLower(tag)]
}
