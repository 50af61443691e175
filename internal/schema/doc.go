// Package schema holds the object-type registry of a level editor and its
// XML document codec.
//
// A Registry maps integer category ids to names and string object ids to
// Entry metadata. Both collections keep insertion order, which is also the
// order Encode writes them in. The registry derives an id-to-model index
// from its entries; the index is rebuilt after every entry mutation and is
// never serialized.
//
// Document layout:
//
//	<database timestamp="INT">
//	  <categories>
//	    <category id="INT">NAME</category>
//	  </categories>
//	  <object id="STRING">
//	    <name/><type/><model/>
//	    <flags known="INT" complete="INT"/>
//	    <category id="INT"/>
//	    <notes/><files/>
//	    <field id="INT" type="" name="" values="" notes=""/>
//	  </object>
//	</database>
//
// Decode is all-or-nothing. Encode can refresh the document timestamp and is
// otherwise read-only.
package schema
